package analytics

import "testing"

func TestClassifyDevice(t *testing.T) {
	testCases := []struct {
		name       string
		platform   string
		deviceName string
		want       string
	}{
		{"windows desktop", "Windows", "Chrome on Windows", DeviceDesktop},
		{"macos desktop", "macOS", "Safari on macOS", DeviceDesktop},
		{"linux desktop", "Linux", "Firefox on Linux", DeviceDesktop},
		{"android mobile", "Android", "Chrome on Android", DeviceMobile},
		{"ios mobile", "iOS", "Safari on iOS", DeviceMobile},
		{"ipad is tablet not mobile", "iOS", "iPad Pro", DeviceTablet},
		{"named tablet on android", "Android", "Galaxy Tablet", DeviceTablet},
		{"unknown platform", "Unknown", "Unknown Device", DeviceUnknown},
		{"empty inputs", "", "", DeviceUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyDevice(tc.platform, tc.deviceName)
			if got != tc.want {
				t.Errorf("classifyDevice(%q, %q) = %q, want %q", tc.platform, tc.deviceName, got, tc.want)
			}
		})
	}
}
