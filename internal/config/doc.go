// Package config reads and writes pagebridge.json, the settings file of the
// pagebridge command.
//
// # Configuration File Structure
//
//	{
//	  "name": "docs",
//	  "worker": {
//	    "manifest": "dist/manifest.json",
//	    "assetPrefix": "/web/",
//	    "assets": ["/", "/app.js", "/wasm_exec.js"],
//	    "extraAssets": ["https://fonts.googleapis.com/css2?family=Montserrat"],
//	    "output": "dist",
//	    "origin": "https://docs.example.com"
//	  },
//	  "host": {
//	    "addr": ":8080",
//	    "readTimeout": "60s",
//	    "heartbeatInterval": "30s",
//	    "eventRate": 50,
//	    "metrics": true
//	  },
//	  "storage": {
//	    "kind": "s3",
//	    "bucket": "docs-offline",
//	    "region": "eu-west-1"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    return err
//	}
//	hc, err := cfg.HostConfig()
package config
