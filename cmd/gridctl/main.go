// Command gridctl computes UTM zone boundaries, projections and zone
// lookups from the command line, locally or through a NATS responder.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
