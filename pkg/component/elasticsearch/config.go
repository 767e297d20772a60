/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package elasticsearch

import (
	"fmt"
	"strings"
)

// Paths inside the Elasticsearch container.
const (
	configPath = "/usr/share/elasticsearch/config/elasticsearch.yml"
	certsPath  = "/usr/share/elasticsearch/config/certs"
	dataPath   = "/usr/share/elasticsearch/data"
)

// renderConfig produces elasticsearch.yml for the cluster. Node identity
// comes from the POD_NAME environment variable; store passwords are injected
// through ${...} environment substitution so they never land in the ConfigMap.
func renderConfig(name, headlessService string, replicas int32) string {
	masters := make([]string, replicas)
	for i := int32(0); i < replicas; i++ {
		masters[i] = fmt.Sprintf("%s-%d", name, i)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "cluster.name: %s\n", name)
	b.WriteString("node.name: ${POD_NAME}\n")
	b.WriteString("network.host: 0.0.0.0\n")
	fmt.Fprintf(&b, "path.data: %s\n", dataPath)
	fmt.Fprintf(&b, "discovery.seed_hosts: [%s]\n", headlessService)
	fmt.Fprintf(&b, "cluster.initial_master_nodes: [%s]\n", strings.Join(masters, ", "))
	b.WriteString("\n")
	b.WriteString("xpack.security.enabled: true\n")
	b.WriteString("xpack.security.transport.ssl.enabled: true\n")
	b.WriteString("xpack.security.transport.ssl.verification_mode: certificate\n")
	fmt.Fprintf(&b, "xpack.security.transport.ssl.keystore.path: %s/keystore.p12\n", certsPath)
	b.WriteString("xpack.security.transport.ssl.keystore.password: ${KEYSTORE_PASSWORD}\n")
	fmt.Fprintf(&b, "xpack.security.transport.ssl.truststore.path: %s/truststore.jks\n", certsPath)
	b.WriteString("xpack.security.transport.ssl.truststore.password: ${TRUSTSTORE_PASSWORD}\n")
	b.WriteString("xpack.security.http.ssl.enabled: true\n")
	fmt.Fprintf(&b, "xpack.security.http.ssl.keystore.path: %s/keystore.p12\n", certsPath)
	b.WriteString("xpack.security.http.ssl.keystore.password: ${KEYSTORE_PASSWORD}\n")
	return b.String()
}
