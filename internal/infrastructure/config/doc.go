// Package config loads and validates the bench configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// BENCHCORE_* environment variables (BENCHCORE_DATABASE_PATH,
// BENCHCORE_MQTT_HOST, BENCHCORE_INFLUXDB_TOKEN, ...). Secrets belong in
// the environment, not the file. Everything is read once at startup:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The instruments section drives what the daemon builds at boot: one
// entry per instrument with its transport (tcp, mqtt or fake) and an
// optional poll block naming the properties to sample.
package config
