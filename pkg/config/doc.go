/*
Package config loads the gridpool server configuration from a YAML
file layered over built-in defaults.

	data_dir: /var/lib/gridpool
	listen: 0.0.0.0:8080
	cutover_hour: 3
	log:
	  level: info
	  json: true
	policies:
	  assignment: least-loaded
	  job: least-busy
	redis:
	  enabled: true
	  addr: 127.0.0.1:6379
	  stream: gridpool:notifications
*/
package config
