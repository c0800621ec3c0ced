// Package confloader layers configuration sources with koanf.
//
// Priority, highest first: overrides (command-line flags), MINIPAY_*
// environment variables, the YAML file, defaults. A Watcher reports edits
// to the file so long-running processes can call Load again.
package confloader
