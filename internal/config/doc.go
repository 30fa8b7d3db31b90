// Package config loads pool, logging and demo settings from YAML or JSON.
//
//	pool:
//	  workers: 4
//	  queue_depth: 0        # 0 = unbounded
//	  panic_policy: isolate # or poison
//	log:
//	  level: info
//	  file: ./logs/threads.log
//	demo:
//	  batch_size: 2
//	  cells:
//	    - {task: say, text: "Hi!"}
package config
