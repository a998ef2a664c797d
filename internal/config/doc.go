// Package config loads the wsio command configuration.
//
// The configuration lives in wsio.json or wsio.toml. Every field is optional;
// missing fields take the defaults from New.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "addr": ":8000",
//	    "public": "public",
//	    "allowAnyOrigin": false
//	  },
//	  "client": {
//	    "url": "ws://localhost:8000",
//	    "insecureSkipVerify": false,
//	    "handshakeTimeout": "10s"
//	  },
//	  "retry": {
//	    "attempts": 16,
//	    "delay": "4ms"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text",
//	    "file": ""
//	  },
//	  "metrics": {
//	    "path": "/metrics"
//	  }
//	}
//
// The same structure in TOML:
//
//	[retry]
//	attempts = 16
//	delay = "4ms"
//
//	[log]
//	level = "debug"
//
// # Usage
//
//	cfg, err := config.LoadFile("wsio.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sock := wsio.NewClient(cfg.Client.URL, cfg.SocketConfig())
package config
