package services

// Credentials represents the storage connection details supplied by the environment
type Credentials struct {
	Endpoint     string `json:"endpoint"`
	AccessKey    string `json:"accessKey"`
	SecretKey    string `json:"secretKey"`
	SessionToken string `json:"sessionToken,omitempty"` // For STS
	Region       string `json:"region,omitempty"`
	// UseSSL overrides endpoint-based TLS detection when set
	UseSSL *bool `json:"useSSL,omitempty"`
}

func (c Credentials) secure() bool {
	if c.UseSSL != nil {
		return *c.UseSSL
	}
	return shouldUseSSL(c.Endpoint)
}
