package events

// ServiceInfo is the metadata returned by the service-info endpoint. The hub
// displays it when an editing workflow service is connected.
type ServiceInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DefaultServiceInfo identifies this service to the hub. The version is
// overwritten with build information at startup.
var DefaultServiceInfo = ServiceInfo{
	Name:    "openreferee-server",
	Version: "dev",
}
