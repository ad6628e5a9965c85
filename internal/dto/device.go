package dto

type DeviceInfo struct {
	Name       string `json:"name"`
	IP         string `json:"ip"`
	MAC        string `json:"mac"`
	Language   string `json:"language"`
	OS         string `json:"os"`
	ScreenSize string `json:"screenSize"`
	Country    string `json:"country"`
}
