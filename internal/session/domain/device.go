package domain

import "strings"

// DeviceClass partitions sessions per credential: at most one active session
// may exist per (credential, device class).
type DeviceClass string

const (
	DevicePC     DeviceClass = "pc"
	DeviceMobile DeviceClass = "mobile"
)

// Valid reports whether d is a known device class.
func (d DeviceClass) Valid() bool {
	return d == DevicePC || d == DeviceMobile
}

// AllDeviceClasses lists every device class; used by force-logout when no
// subset is requested.
var AllDeviceClasses = []DeviceClass{DevicePC, DeviceMobile}

// mobileTokens are matched case-insensitively against the user agent. The set
// covers phone/tablet OS and browser markers seen in practice.
var mobileTokens = []string{
	"mobile",
	"android",
	"iphone",
	"ipad",
	"ipod",
	"windows phone",
	"blackberry",
	"opera mini",
	"opera mobi",
	"webos",
	"tablet",
}

// ClassifyDevice maps a user-agent string to a device class. Empty or
// unrecognized input defaults to pc, which carries the stricter
// single-active-session policy for the common case. Classification happens
// once at login and is stored; it is not re-derived per request.
func ClassifyDevice(userAgent string) DeviceClass {
	ua := strings.ToLower(userAgent)
	for _, tok := range mobileTokens {
		if strings.Contains(ua, tok) {
			return DeviceMobile
		}
	}
	return DevicePC
}
