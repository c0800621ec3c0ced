// Package main provides the entry point for minipay-devserver.
//
// minipay-devserver is a local backend for developing and testing
// minipay-cli. It issues JWTs for configured users, accepts payment
// simulations and lists them to admin users. Data is kept in memory.
//
// Usage:
//
//	minipay-devserver [flags]
//	minipay-devserver --addr localhost:8000 --config devserver.yaml
package main
