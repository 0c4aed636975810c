// Package config loads the sipa project configuration.
//
// The configuration lives in sipa.yaml (or sipa.yml / sipa.json) at the
// project root:
//
//	render:
//	  period: 200ms
//	  logLevel: info
//	inspector:
//	  addr: localhost:7070
//	store:
//	  boltPath: .sipa/state.db
//	  s3:
//	    bucket: my-app-state
//	    prefix: sessions/
//	    region: eu-west-1
//	metrics:
//	  namespace: sipa
//
// Missing fields take defaults from New. Durations use Go duration syntax.
package config
