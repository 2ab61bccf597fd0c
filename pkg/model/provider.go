package model

//go:generate go run github.com/dmarkham/enumer -type Provider -transform lower -json -sql -output provider.gen.go

// Provider identifies the cloud provider a stored credential belongs to.
type Provider int

const (
	ProviderAWS Provider = iota
	ProviderGCP
	ProviderAzure
)
