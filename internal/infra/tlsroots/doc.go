// Package tlsroots builds the trust store used to reach HTTPS backends.
//
// The pool starts from the system roots and can be extended with extra CA
// bundles (PEM), which is how a self-signed development backend is trusted.
package tlsroots
