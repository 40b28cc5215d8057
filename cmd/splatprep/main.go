package main

import (
	"flag"
	"log"
	"os"

	"github.com/golang/glog"
	"github.com/urfave/cli/v2"
)

func inOutFlags(inUsage, outUsage string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "in",
			Usage:    inUsage,
			Required: true,
		},
		&cli.StringFlag{
			Name:     "out",
			Usage:    outUsage,
			Required: true,
		},
	}
}

func gaussianFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64SliceFlag{
			Name:  "scale",
			Usage: "initial linear gaussian size, one value for all axes or x,y,z (default 0.01)",
		},
		&cli.Float64Flag{
			Name:  "opacity",
			Usage: "initial opacity probability in [0, 1] (default 0.8)",
		},
		&cli.IntFlag{
			Name:  "sh-degree",
			Usage: "spherical harmonic degree, higher order coefficients are zeroed (default 0)",
		},
		&cli.BoolFlag{
			Name:  "ascii",
			Usage: "write an ascii ply instead of binary",
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "splatprep",
		Usage: "Converts colored PLY point clouds to points3D records and gaussian splat initializations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML config file",
			},
			&cli.IntSliceFlag{
				Name:  "default-color",
				Usage: "r,g,b given to points when the ply has no color fields (default 255,255,255)",
			},
			&cli.Float64Flag{
				Name:  "error",
				Usage: "reprojection error written for every point (default 0)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log progress",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				return flag.Set("v", "1")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "points-bin",
				Usage: "ply to points3D.bin",
				Flags: inOutFlags("path to ply point cloud", "path to points3D.bin"),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return plyToPointsBinary(c.String("in"), c.String("out"), cfg)
				},
			},
			{
				Name:  "points-txt",
				Usage: "ply to points3D.txt",
				Flags: inOutFlags("path to ply point cloud", "path to points3D.txt"),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return plyToPointsText(c.String("in"), c.String("out"), cfg)
				},
			},
			{
				Name:  "txt2bin",
				Usage: "points3D.txt to points3D.bin, tracks are dropped",
				Flags: inOutFlags("path to points3D.txt", "path to points3D.bin"),
				Action: func(c *cli.Context) error {
					return pointsTextToBinary(c.String("in"), c.String("out"))
				},
			},
			{
				Name:  "bin2txt",
				Usage: "points3D.bin to points3D.txt, tracks are dropped",
				Flags: inOutFlags("path to points3D.bin", "path to points3D.txt"),
				Action: func(c *cli.Context) error {
					return pointsBinaryToText(c.String("in"), c.String("out"))
				},
			},
			{
				Name:  "gaussians",
				Usage: "ply to a gaussian splatting ply",
				Flags: append(inOutFlags("path to ply point cloud", "path to gaussian ply"), gaussianFlags()...),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return plyToGaussians(c.String("in"), c.String("out"), cfg)
				},
			},
			{
				Name:  "bundle",
				Usage: "ply to a rap recording carrying every converted representation",
				Flags: append(
					append(inOutFlags("path to ply point cloud", "path to rap file"), gaussianFlags()...),
					&cli.StringFlag{
						Name:  "name",
						Usage: "recording name, defaults to the input path",
					},
				),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					return plyToBundle(c.String("in"), c.String("out"), c.String("name"), cfg)
				},
			},
		},
	}
}

func main() {
	flag.Set("logtostderr", "true")
	flag.CommandLine.Parse(nil)

	if err := newApp().Run(os.Args); err != nil {
		glog.Flush()
		log.Fatal(err)
	}
	glog.Flush()
}
