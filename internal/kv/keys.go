package kv

// Key namespaces shared by the publication and resolution paths.
const (
	landingKeyPrefix = "landing:"
	shortKeyPrefix   = "short:"
	clicksKeyPrefix  = "clicks:"
	deploysKeyPrefix = "deploys:"
)

// LandingKey returns the storage key holding the PageRecord for a slug.
func LandingKey(slug string) string {
	return landingKeyPrefix + slug
}

// ShortKey returns the storage key mapping a short code back to its slug.
func ShortKey(code string) string {
	return shortKeyPrefix + code
}

// ClicksKey returns the storage key holding the view counter for a slug.
func ClicksKey(slug string) string {
	return clicksKeyPrefix + slug
}

// DeploysKey returns the storage key holding the publish counter for a slug.
func DeploysKey(slug string) string {
	return deploysKeyPrefix + slug
}
