package providers

const (
	// Identifier for the keyed lookup API of ip2location.io.
	NameIP2LocationAPI = "ip2location_api"

	// Identifier for the demo page of ip2location.com.
	NameIP2LocationDemo = "ip2location_demo"

	// Identifier for invisible reCAPTCHA v3 solver.
	NameRecaptcha = "recaptcha"
)
