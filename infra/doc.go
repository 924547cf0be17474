// Package infra contains technical adapters such as the MQTT and websocket
// renderers, the OSRM and Nominatim clients and the metrics exporters. These
// packages should depend only on the interfaces defined in the core packages.
package infra
