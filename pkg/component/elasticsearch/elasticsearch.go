/*
Copyright © 2026 Datastack Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package elasticsearch builds the manifest set for a self-managed
// Elasticsearch cluster: StatefulSet with stable identity and per-replica
// storage, governing headless Service plus a client Service, the
// elasticsearch.yml ConfigMap, a PodDisruptionBudget, and a NetworkPolicy
// limiting transport/http traffic to the namespace.
package elasticsearch

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
	componentName = "elasticsearch"

	httpPort      = 9200
	transportPort = 9300

	// vm.max_map_count required by Elasticsearch's mmapfs store.
	maxMapCount = "262144"

	sysctlImage = "busybox:1.36"
)

// Builder implements types.Component for Elasticsearch.
type Builder struct{}

// New creates an Elasticsearch component builder.
func New() *Builder {
	return &Builder{}
}

// Name identifies the component.
func (b *Builder) Name() cluster.Component {
	return cluster.ComponentElasticsearch
}

// Objects builds the full manifest set from the cluster configuration.
func (b *Builder) Objects(cfg *cluster.Config) (*types.Objects, error) {
	spec := cfg.Elasticsearch
	if spec == nil {
		return nil, fmt.Errorf("elasticsearch spec is not configured")
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

func (b *Builder) serviceAccount(namespace string, spec *cluster.ElasticsearchSpec) *corev1.ServiceAccount {
	return &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: namespace,
			Labels:    types.Labels(componentName, spec.Name),
		},
	}
}

func (b *Builder) configMap(namespace string, spec *cluster.ElasticsearchSpec) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name + "-config",
			Namespace: namespace,
			Labels:    types.Labels(componentName, spec.Name),
		},
		Data: map[string]string{
			"elasticsearch.yml": renderConfig(spec.Name, spec.HeadlessServiceName(), spec.Replicas),
		},
	}
}

func (b *Builder) headlessService(namespace string, spec *cluster.ElasticsearchSpec) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.HeadlessServiceName(),
			Namespace: namespace,
			Labels:    types.Labels(componentName, spec.Name),
		},
		Spec: corev1.ServiceSpec{
			ClusterIP: corev1.ClusterIPNone,
			// Unready pods must resolve so nodes can discover each other
			// while the cluster bootstraps.
			PublishNotReadyAddresses: true,
			Selector:                 types.SelectorLabels(componentName, spec.Name),
			Ports: []corev1.ServicePort{
				{Name: "transport", Port: transportPort, TargetPort: intstr.FromString("transport")},
				{Name: "https", Port: httpPort, TargetPort: intstr.FromString("https")},
			},
		},
	}
}

func (b *Builder) clientService(namespace string, spec *cluster.ElasticsearchSpec) *corev1.Service {
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
				{Name: "https", Port: httpPort, TargetPort: intstr.FromString("https")},
			},
		},
	}
}

func (b *Builder) podDisruptionBudget(namespace string, spec *cluster.ElasticsearchSpec) *policyv1.PodDisruptionBudget {
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

func (b *Builder) networkPolicy(namespace string, spec *cluster.ElasticsearchSpec) *networkingv1.NetworkPolicy {
	tcp := corev1.ProtocolTCP
	transport := intstr.FromInt32(transportPort)
	https := intstr.FromInt32(httpPort)

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
					// Same-namespace pods only.
					From: []networkingv1.NetworkPolicyPeer{
						{PodSelector: &metav1.LabelSelector{}},
					},
					Ports: []networkingv1.NetworkPolicyPort{
						{Protocol: &tcp, Port: &transport},
						{Protocol: &tcp, Port: &https},
					},
				},
			},
		},
	}
}

func (b *Builder) statefulSet(namespace string, spec *cluster.ElasticsearchSpec) *appsv1.StatefulSet {
	labels := types.Labels(componentName, spec.Name)
	heap := spec.HeapSize
	if heap == "" {
		heap = "1g"
	}

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
			ServiceName:         spec.HeadlessServiceName(),
			Replicas:            ptr.To(spec.Replicas),
			PodManagementPolicy: appsv1.ParallelPodManagement,
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
					InitContainers: []corev1.Container{
						{
							Name:    "sysctl",
							Image:   sysctlImage,
							Command: []string{"sysctl", "-w", "vm.max_map_count=" + maxMapCount},
							SecurityContext: &corev1.SecurityContext{
								Privileged: ptr.To(true),
							},
						},
					},
					Containers: []corev1.Container{
						{
							Name:  componentName,
							Image: spec.ImageRef(),
							Ports: []corev1.ContainerPort{
								{Name: "https", ContainerPort: httpPort},
								{Name: "transport", ContainerPort: transportPort},
							},
							Env: []corev1.EnvVar{
								{
									Name: "POD_NAME",
									ValueFrom: &corev1.EnvVarSource{
										FieldRef: &corev1.ObjectFieldSelector{FieldPath: "metadata.name"},
									},
								},
								{
									Name:  "ES_JAVA_OPTS",
									Value: fmt.Sprintf("-Xms%s -Xmx%s", heap, heap),
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
									TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromString("transport")},
								},
								InitialDelaySeconds: 10,
								PeriodSeconds:       10,
							},
							LivenessProbe: &corev1.Probe{
								ProbeHandler: corev1.ProbeHandler{
									TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromString("transport")},
								},
								InitialDelaySeconds: 60,
								PeriodSeconds:       30,
							},
							Resources: corev1.ResourceRequirements{
								Requests: corev1.ResourceList{
									corev1.ResourceCPU:    resource.MustParse("500m"),
									corev1.ResourceMemory: resource.MustParse("2Gi"),
								},
								Limits: corev1.ResourceList{
									corev1.ResourceMemory: resource.MustParse("4Gi"),
								},
							},
							VolumeMounts: []corev1.VolumeMount{
								{Name: "config", MountPath: configPath, SubPath: "elasticsearch.yml"},
								{Name: "certs", MountPath: certsPath, ReadOnly: true},
								{Name: "data", MountPath: dataPath},
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
