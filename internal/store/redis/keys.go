package redis

const (
	// KeyPrefixHost is the prefix for host hashes
	KeyPrefixHost = "nvrsync:host:"
	// KeyPrefixCamera is the prefix for camera hashes
	KeyPrefixCamera = "nvrsync:camera:"
	// KeyAllHosts is the set of all host IDs
	KeyAllHosts = "nvrsync:hosts:all"
	// KeyHostsByURL maps host URL -> host ID
	KeyHostsByURL = "nvrsync:hosts:by_url"
)

// HostKey returns the hash key for a host
func HostKey(id string) string {
	return KeyPrefixHost + id
}

// HostCamerasKey returns the set of camera IDs owned by a host
func HostCamerasKey(hostID string) string {
	return KeyPrefixHost + hostID + ":cameras"
}

// HostCameraNamesKey returns the hash mapping camera name -> camera ID for a host.
// It enforces name uniqueness within the host.
func HostCameraNamesKey(hostID string) string {
	return KeyPrefixHost + hostID + ":camera_names"
}

// CameraKey returns the hash key for a camera
func CameraKey(id string) string {
	return KeyPrefixCamera + id
}

// CameraTagsKey returns the set of tags attached to a camera
func CameraTagsKey(id string) string {
	return KeyPrefixCamera + id + ":tags"
}

// AllHostsKey returns the key for the set of all host IDs
func AllHostsKey() string {
	return KeyAllHosts
}
