// Package config loads eventum configuration.
//
// The configuration lives in eventum.json, or eventum.yaml, in the working
// directory. Every field can be overridden with an EVENTUM_ variable named
// after its path, for example EVENTUM_API_URL, EVENTUM_WS_URL or
// EVENTUM_DEV_PORT.
//
// # Configuration File Structure
//
//	{
//	  "api": {
//	    "url": "https://eventum.xyz/api/srv",
//	    "timeout": "30s"
//	  },
//	  "realtime": {
//	    "url": "wss://eventum.xyz",
//	    "backoff": {"initial": "500ms", "max": "30s", "attempts": 8}
//	  },
//	  "assets": {
//	    "bucket": "eventum-media",
//	    "region": "eu-central-1",
//	    "expiry": "15m"
//	  },
//	  "dev": {"port": 3000, "host": "localhost", "db": "eventum.db"},
//	  "log": {"level": "info", "format": "text"},
//	  "metrics": {"enabled": true}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("API:", cfg.API.URL)
package config
