// This package provides a set of structs and functions which are used
// to answer a single question: what do we know about a given IP
// address.
//
// sleuthlib is a core of the ipsleuth project. You can treat the rest
// of the application as an _example_ on how to use this library: how
// to pass parameters from HTTP requests, how to render responses, how
// to implement providers and segment stores.
//
// Resolver is a main entity of the sleuthlib. It walks a fallback
// chain for each address: segment cache, keyed lookup API and, as the
// last resort, a scrape of a demo page which is guarded by an invisible
// CAPTCHA. Each step depends on the outcome of the previous one so a
// single resolution is strictly sequential. Many resolutions can run
// concurrently though.
//
// Cache is keyed by a segment, not by exact address: /24 for IPv4 and
// /64 for IPv6. All addresses of the segment share the same stored
// document but each of them gets it back with its own address in the
// data.
package sleuthlib
