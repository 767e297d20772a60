/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package kafka builds the manifest set for a self-managed Kafka cluster in
// KRaft mode: every node carries both broker and controller roles, quorum
// voters span all ordinals, and there is no ZooKeeper. TLS material comes
// from the Secrets the pki package maintains.
package kafka

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	policyv1 "k8s.io/api/policy/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/datastackhq/stackctl/pkg/cluster"
	"github.com/datastackhq/stackctl/pkg/component/types"
	"github.com/datastackhq/stackctl/pkg/pki"
)

const (
	componentName = "kafka"

	clientPort     = 9092
	controllerPort = 9093
)

// Builder implements types.Component for Kafka.
type Builder struct{}

// New creates a Kafka component builder.
func New() *Builder {
	return &Builder{}
}

// Name identifies the component.
func (b *Builder) Name() cluster.Component {
	return cluster.ComponentKafka
}

// Objects builds the full manifest set from the cluster configuration.
func (b *Builder) Objects(cfg *cluster.Config) (*types.Objects, error) {
	spec := cfg.Kafka
	if spec == nil {
		return nil, fmt.Errorf("kafka spec is not configured")
	}

	return &types.Objects{
		ServiceAccount:      b.serviceAccount(cfg.Namespace, spec),
		ConfigMap:           b.configMap(cfg.Namespace, spec),
		Services:            []*corev1.Service{b.headlessService(cfg.Namespace, spec), b.clientService(cfg.Namespace, spec)},
		PodDisruptionBudget: b.podDisruptionBudget(cfg.Namespace, spec),
		NetworkPolicy:       b.networkPolicy(cfg.Namespace, spec),
		StatefulSet:         b.statefulSet(cfg.Namespace, spec),
	}, nil
}

func (b *Builder) serviceAccount(namespace string, spec *cluster.KafkaSpec) *corev1.ServiceAccount {
	return &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: namespace,
			Labels:    types.Labels(componentName, spec.Name),
		},
	}
}

func (b *Builder) configMap(namespace string, spec *cluster.KafkaSpec) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name + "-config",
			Namespace: namespace,
			Labels:    types.Labels(componentName, spec.Name),
		},
		Data: map[string]string{
			"server.properties": renderServerProperties(spec.Name, spec.HeadlessServiceName(), namespace, spec.Replicas),
			"entrypoint.sh":     renderEntrypoint(spec.HeadlessServiceName(), namespace),
		},
	}
}

func (b *Builder) headlessService(namespace string, spec *cluster.KafkaSpec) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.HeadlessServiceName(),
			Namespace: namespace,
			Labels:    types.Labels(componentName, spec.Name),
		},
		Spec: corev1.ServiceSpec{
			ClusterIP: corev1.ClusterIPNone,
			// Controllers must resolve each other before the quorum is up.
			PublishNotReadyAddresses: true,
			Selector:                 types.SelectorLabels(componentName, spec.Name),
			Ports: []corev1.ServicePort{
				{Name: "client", Port: clientPort, TargetPort: intstr.FromString("client")},
				{Name: "controller", Port: controllerPort, TargetPort: intstr.FromString("controller")},
			},
		},
	}
}

func (b *Builder) clientService(namespace string, spec *cluster.KafkaSpec) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: namespace,
			Labels:    types.Labels(componentName, spec.Name),
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeClusterIP,
			Selector: types.SelectorLabels(componentName, spec.Name),
			Ports: []corev1.ServicePort{
				{Name: "client", Port: clientPort, TargetPort: intstr.FromString("client")},
			},
		},
	}
}

func (b *Builder) podDisruptionBudget(namespace string, spec *cluster.KafkaSpec) *policyv1.PodDisruptionBudget {
	maxUnavailable := intstr.FromInt32(1)
	return &policyv1.PodDisruptionBudget{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: namespace,
			Labels:    types.Labels(componentName, spec.Name),
		},
		Spec: policyv1.PodDisruptionBudgetSpec{
			MaxUnavailable: &maxUnavailable,
			Selector: &metav1.LabelSelector{
				MatchLabels: types.SelectorLabels(componentName, spec.Name),
			},
		},
	}
}

func (b *Builder) networkPolicy(namespace string, spec *cluster.KafkaSpec) *networkingv1.NetworkPolicy {
	tcp := corev1.ProtocolTCP
	client := intstr.FromInt32(clientPort)
	controller := intstr.FromInt32(controllerPort)

	return &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: namespace,
			Labels:    types.Labels(componentName, spec.Name),
		},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{
				MatchLabels: types.SelectorLabels(componentName, spec.Name),
			},
			PolicyTypes: []networkingv1.PolicyType{networkingv1.PolicyTypeIngress},
			Ingress: []networkingv1.NetworkPolicyIngressRule{
				{
					From: []networkingv1.NetworkPolicyPeer{
						{PodSelector: &metav1.LabelSelector{}},
					},
					Ports: []networkingv1.NetworkPolicyPort{
						{Protocol: &tcp, Port: &client},
						{Protocol: &tcp, Port: &controller},
					},
				},
			},
		},
	}
}

func (b *Builder) statefulSet(namespace string, spec *cluster.KafkaSpec) *appsv1.StatefulSet {
	labels := types.Labels(componentName, spec.Name)

	var storageClass *string
	if spec.StorageClass != "" {
		storageClass = ptr.To(spec.StorageClass)
	}

	return &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: namespace,
			Labels:    labels,
		},
		Spec: appsv1.StatefulSetSpec{
			ServiceName: spec.HeadlessServiceName(),
			Replicas:    ptr.To(spec.Replicas),
			// Ordered so the quorum bootstraps one voter at a time.
			PodManagementPolicy: appsv1.OrderedReadyPodManagement,
			UpdateStrategy: appsv1.StatefulSetUpdateStrategy{
				Type: appsv1.RollingUpdateStatefulSetStrategyType,
			},
			Selector: &metav1.LabelSelector{
				MatchLabels: types.SelectorLabels(componentName, spec.Name),
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: labels,
				},
				Spec: corev1.PodSpec{
					ServiceAccountName: spec.Name,
					NodeSelector:       spec.NodeSelector,
					Tolerations:        spec.Tolerations,
					SecurityContext: &corev1.PodSecurityContext{
						FSGroup: ptr.To(int64(1000)),
					},
					Containers: []corev1.Container{
						{
							Name:    componentName,
							Image:   spec.ImageRef(),
							Command: []string{"/bin/bash", configDir + "/entrypoint.sh"},
							Ports: []corev1.ContainerPort{
								{Name: "client", ContainerPort: clientPort},
								{Name: "controller", ContainerPort: controllerPort},
							},
							Env: []corev1.EnvVar{
								// The KRaft cluster ID comes from the Secret the deployer
								// maintains, keeping the pod template stable across deploys.
								{
									Name: "CLUSTER_ID",
									ValueFrom: &corev1.EnvVarSource{
										SecretKeyRef: &corev1.SecretKeySelector{
											LocalObjectReference: corev1.LocalObjectReference{Name: spec.ClusterIDSecretName()},
											Key:                  cluster.ClusterIDSecretKey,
										},
									},
								},
								{
									Name: "KEYSTORE_PASSWORD",
									ValueFrom: &corev1.EnvVarSource{
										SecretKeyRef: &corev1.SecretKeySelector{
											LocalObjectReference: corev1.LocalObjectReference{Name: spec.PassSecretName()},
											Key:                  pki.KeyKeystorePassword,
										},
									},
								},
								{
									Name: "TRUSTSTORE_PASSWORD",
									ValueFrom: &corev1.EnvVarSource{
										SecretKeyRef: &corev1.SecretKeySelector{
											LocalObjectReference: corev1.LocalObjectReference{Name: spec.PassSecretName()},
											Key:                  pki.KeyTruststorePassword,
										},
									},
								},
							},
							ReadinessProbe: &corev1.Probe{
								ProbeHandler: corev1.ProbeHandler{
									TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromString("client")},
								},
								InitialDelaySeconds: 20,
								PeriodSeconds:       10,
							},
							LivenessProbe: &corev1.Probe{
								ProbeHandler: corev1.ProbeHandler{
									TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromString("controller")},
								},
								InitialDelaySeconds: 60,
								PeriodSeconds:       30,
							},
							Resources: corev1.ResourceRequirements{
								Requests: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("500m"),
									corev1.ResourceMemory: resource.MustParse("1Gi"),
								},
								Limits: corev1.ResourceList{
									corev1.ResourceMemory: resource.MustParse("2Gi"),
								},
							},
							VolumeMounts: []corev1.VolumeMount{
								{Name: "config", MountPath: configDir, ReadOnly: true},
								{Name: "certs", MountPath: certsDir, ReadOnly: true},
								{Name: "data", MountPath: dataDir},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: "config",
							VolumeSource: corev1.VolumeSource{
								ConfigMap: &corev1.ConfigMapVolumeSource{
									LocalObjectReference: corev1.LocalObjectReference{Name: spec.Name + "-config"},
								},
							},
						},
						{
							Name: "certs",
							VolumeSource: corev1.VolumeSource{
								Secret: &corev1.SecretVolumeSource{
									SecretName: spec.CertsSecretName(),
								},
							},
						},
					},
				},
			},
			VolumeClaimTemplates: []corev1.PersistentVolumeClaim{
				{
					ObjectMeta: metav1.ObjectMeta{
						Name:   "data",
						Labels: types.SelectorLabels(componentName, spec.Name),
					},
					Spec: corev1.PersistentVolumeClaimSpec{
						AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
						StorageClassName: storageClass,
						Resources: corev1.VolumeResourceRequirements{
							Requests: corev1.ResourceList{
								corev1.ResourceStorage: resource.MustParse(spec.StorageSize),
							},
						},
					},
				},
			},
		},
	}
}
