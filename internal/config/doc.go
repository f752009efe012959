// Package config holds the bootstrap parameters for a single node.
//
// A Config is assembled from the positional arguments the testbed passes to
// the startup service, plus a Settings block of deployment tunables with
// sensible defaults that can be overridden from a YAML file.
package config
