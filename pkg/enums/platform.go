package enums

// Platform identifies which client surface opened a connection.
type Platform string

const (
	PlatformApp   Platform = "app"
	PlatformWeb   Platform = "web"
	PlatformAdmin Platform = "admin"
)

var validPlatforms = []Platform{
	PlatformApp,
	PlatformWeb,
	PlatformAdmin,
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Platform.
func (p Platform) IsValid() bool {
	for _, candidate := range validPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}
