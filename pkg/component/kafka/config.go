/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/
package kafka

import (
	"fmt"
	"strings"
)

// Paths inside the Kafka container (apache/kafka image layout).
const (
	configDir = "/etc/kafka/config"
	certsDir  = "/etc/kafka/certs"
	dataDir   = "/var/lib/kafka/data"

	kafkaBin = "/opt/kafka/bin"
)

// renderServerProperties produces the static part of server.properties.
// Per-pod values (node.id, advertised.listeners) and store passwords are
// appended by the entrypoint script at container start.
func renderServerProperties(name, headlessService, namespace string, replicas int32) string {
	voters := make([]string, replicas)
	for i := int32(0); i < replicas; i++ {
		voters[i] = fmt.Sprintf("%d@%s-%d.%s.%s.svc.cluster.local:%d",
			i, name, i, headlessService, namespace, controllerPort)
	}

	replicationFactor := replicas
	if replicationFactor > 3 {
		replicationFactor = 3
	}
	minISR := replicationFactor - 1
	if minISR < 1 {
		minISR = 1
	}

	var b strings.Builder
	b.WriteString("process.roles=broker,controller\n")
	fmt.Fprintf(&b, "controller.quorum.voters=%s\n", strings.Join(voters, ","))
	fmt.Fprintf(&b, "listeners=SSL://0.0.0.0:%d,CONTROLLER://0.0.0.0:%d\n", clientPort, controllerPort)
	b.WriteString("inter.broker.listener.name=SSL\n")
	b.WriteString("controller.listener.names=CONTROLLER\n")
	b.WriteString("listener.security.protocol.map=SSL:SSL,CONTROLLER:SSL\n")
	b.WriteString("ssl.client.auth=required\n")
	b.WriteString("ssl.keystore.type=PKCS12\n")
	fmt.Fprintf(&b, "ssl.keystore.location=%s/keystore.p12\n", certsDir)
	b.WriteString("ssl.truststore.type=JKS\n")
	fmt.Fprintf(&b, "ssl.truststore.location=%s/truststore.jks\n", certsDir)
	fmt.Fprintf(&b, "log.dirs=%s\n", dataDir)
	b.WriteString("num.partitions=3\n")
	fmt.Fprintf(&b, "offsets.topic.replication.factor=%d\n", replicationFactor)
	fmt.Fprintf(&b, "transaction.state.log.replication.factor=%d\n", replicationFactor)
	fmt.Fprintf(&b, "transaction.state.log.min.isr=%d\n", minISR)
	return b.String()
}

// renderEntrypoint produces the container start script. It derives node.id
// from the pod ordinal, appends per-pod and secret-sourced properties,
// formats the log directory on first start, and execs the broker.
func renderEntrypoint(headlessService, namespace string) string {
	return fmt.Sprintf(`#!/bin/bash
set -euo pipefail

ORDINAL="${HOSTNAME##*-}"
CONFIG="/tmp/server.properties"

cp %s/server.properties "${CONFIG}"
{
  echo "node.id=${ORDINAL}"
  echo "advertised.listeners=SSL://${HOSTNAME}.%s.%s.svc.cluster.local:%d"
  echo "ssl.keystore.password=${KEYSTORE_PASSWORD}"
  echo "ssl.key.password=${KEYSTORE_PASSWORD}"
  echo "ssl.truststore.password=${TRUSTSTORE_PASSWORD}"
} >> "${CONFIG}"

if [ ! -f "%s/meta.properties" ]; then
  %s/kafka-storage.sh format -t "${CLUSTER_ID}" -c "${CONFIG}" --ignore-formatted
fi

exec %s/kafka-server-start.sh "${CONFIG}"
`, configDir, headlessService, namespace, clientPort, dataDir, kafkaBin, kafkaBin)
}
