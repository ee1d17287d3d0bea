package hostfile

// File is the top-level structure of the hosts registration file.
//
//	hosts:
//	  - name: garage
//	    url: https://nvr-garage.lan:5000
//	    enabled: true
type File struct {
	Hosts []HostEntry `yaml:"hosts"`
}

// HostEntry registers one NVR host. Enabled defaults to true when omitted.
type HostEntry struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Enabled *bool  `yaml:"enabled,omitempty"`
}
