// Package cluster builds URLs for the web endpoints a big-data cluster
// exposes through its Knox gateway. Pure string building; nothing here
// performs IO.
package cluster

import "fmt"

const (
	// DefaultGatewayPort is the Knox gateway port clusters expose by default.
	DefaultGatewayPort = "30443"

	// gatewayBase is the Knox topology path all endpoints hang off.
	gatewayBase = "gateway/default"
)

// gatewayURL joins host, port and a service path under the gateway base.
func gatewayURL(host, port, service string) string {
	if port == "" {
		port = DefaultGatewayPort
	}
	return fmt.Sprintf("https://%s:%s/%s/%s", host, port, gatewayBase, service)
}

// SparkHistoryURL returns the Spark history server web page for a cluster.
func SparkHistoryURL(host, port string) string {
	return gatewayURL(host, port, "sparkhistory/")
}

// YarnHistoryURL returns the Yarn application history web page for a cluster.
func YarnHistoryURL(host, port string) string {
	return gatewayURL(host, port, "yarnhistory/")
}

// WebHDFSURL returns the WebHDFS v1 REST root for a cluster.
func WebHDFSURL(host, port string) string {
	return gatewayURL(host, port, "webhdfs/v1")
}
