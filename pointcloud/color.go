package pointcloud

// ColorScheme is one accepted naming convention for a vertex color triple.
type ColorScheme struct {
	Name   string
	Fields [3]string
}

// ColorSchemes lists the accepted color naming conventions in the order they
// are tried. The first scheme whose three fields are all present wins.
var ColorSchemes = []ColorScheme{
	{Name: "rgb", Fields: [3]string{"red", "green", "blue"}},
	{Name: "short", Fields: [3]string{"r", "g", "b"}},
	{Name: "diffuse", Fields: [3]string{"diffuse_red", "diffuse_green", "diffuse_blue"}},
}

// DefaultColor is assigned to every point of a cloud without color fields
// unless the caller configures another one.
var DefaultColor = [3]uint8{255, 255, 255}

// Supported reports whether every field of the scheme is among names.
func (s ColorScheme) Supported(names []string) bool {
	for _, field := range s.Fields {
		found := false
		for _, name := range names {
			if name == field {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ResolveColorScheme returns the first scheme of schemes supported by the
// given property names.
func ResolveColorScheme(schemes []ColorScheme, names []string) (ColorScheme, bool) {
	for _, scheme := range schemes {
		if scheme.Supported(names) {
			return scheme, true
		}
	}
	return ColorScheme{}, false
}

func colorChannel(v float64) uint8 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
