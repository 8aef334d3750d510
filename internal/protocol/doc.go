// Package protocol owns the bridge wire format.
//
// Ownership boundary:
// - request line tokenizer and interpreter
// - flat JSON body scan for the "code" key
// - request framing over a fixed-size receive buffer
// - response encoding into a fixed-size send buffer
//
// Parsing never fails. Anything the parser cannot use degrades to the
// request defaults and the dispatcher turns that into a 400.
package protocol
