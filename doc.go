// Ipsleuth is a service which resolves geolocation data for IP
// addresses.
//
// Resolution goes through a chain of stages. First one is a segment
// cache: addresses from the same /24 (IPv4) or /64 (IPv6) network share
// a single cached document. On a miss, keyed ip2location.io API is
// asked. If there is no key or API fails, a public ip2location.com demo
// page is used: we solve its invisible reCAPTCHA, verify a fresh session
// with a token and scrape a JSON block from the page.
//
// Tool itself is organized into 3 logical parts:
//
// # Sleuthlib
//
// sleuthlib is a main package of the application. It contains Resolver
// which walks the chain, segment cache and an HTTP client with rate
// limiting and circuit breaking.
//
// # Providers and stores
//
// providers implement remote stages: reCAPTCHA solver, demo page
// verifier and scraper and keyed API. stores contain segment store
// backends: filesystem, redis, SQLite and PostgreSQL.
//
// # Ipsleuth
//
// A main package wires everything together and starts HTTP server
// (see api package) which can be used in your infrastructure as is.
package main
