package puppetwhatsapp

// Version is the adapter version, overridable at build time via
// -ldflags "-X github.com/bung87/puppet-whatsapp.Version=...".
var Version = "0.5.0"

// Version returns the adapter version string.
func (p *Puppet) Version() string {
	return Version
}
