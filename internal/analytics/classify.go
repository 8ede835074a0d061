package analytics

import "strings"

// Device type buckets for the per-user breakdown.
const (
	DeviceTablet  = "tablet"
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
	DeviceUnknown = "unknown"
)

// classifyDevice buckets a session by its recorded platform and device name.
// Checks run tablet first because tablet signals ("ipad", "tablet" in the name)
// coexist with mobile platforms; then mobile by platform, then desktop by
// platform. Anything else is unknown.
func classifyDevice(platform, deviceName string) string {
	name := strings.ToLower(deviceName)
	if strings.Contains(name, "ipad") || strings.Contains(name, "tablet") {
		return DeviceTablet
	}
	switch platform {
	case "Android", "iOS":
		return DeviceMobile
	case "Windows", "macOS", "Linux":
		return DeviceDesktop
	default:
		return DeviceUnknown
	}
}
