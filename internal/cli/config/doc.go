// Package config defines the minipay-cli configuration (~/.minipay/cli.yaml).
package config
