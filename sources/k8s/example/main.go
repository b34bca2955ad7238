// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"
	"strings"

	"github.com/kr/pretty"
	v1 "k8s.io/api/core/v1"
	k8sRuntime "k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	rpp "github.com/GitJQ/ReactivePlusPlus"
	"github.com/GitJQ/ReactivePlusPlus/sources/k8s"
)

var (
	apiServerURL   string
	kubeConfigPath string
)

func init() {
	flag.StringVar(&apiServerURL, "server-url", "", "Kubernetes API server URL")
	var defaultKubeConfigPath string
	if homeDir, err := os.UserHomeDir(); err == nil {
		defaultKubeConfigPath = path.Join(homeDir, ".kube", "config")
	}
	flag.StringVar(&kubeConfigPath, "kubeconfig", defaultKubeConfigPath, "Path to kubeconfig")
}

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the context on interrupt (ctrl-c)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		log.Printf("Interrupted, stopping...")
		cancel()
	}()

	client, err := newK8sRESTClient(apiServerURL, kubeConfigPath)
	if err != nil {
		log.Fatalf("Failed to create k8s client: %s", err)
	}

	podDiffer := newDiffer[*v1.Pod]()
	serviceDiffer := newDiffer[*v1.Service]()
	endpointsDiffer := newDiffer[*v1.Endpoints]()

	pods, runPods := k8s.NewResourceFromClient[*v1.Pod](ctx, "pods", "default", client)
	services, runServices := k8s.NewResourceFromClient[*v1.Service](ctx, "services", "default", client)
	endpoints, runEndpoints := k8s.NewResourceFromClient[*v1.Endpoints](ctx, "endpoints", "default", client)
	go runPods()
	go runServices()
	go runEndpoints()

	podLines := rpp.Map(pods, func(ev k8s.Event[*v1.Pod]) string {
		return describe(ev, podDiffer)
	})
	serviceLines := rpp.Map(services, func(ev k8s.Event[*v1.Service]) string {
		return describe(ev, serviceDiffer)
	})
	endpointsLines := rpp.Map(endpoints, func(ev k8s.Event[*v1.Endpoints]) string {
		return describe(ev, endpointsDiffer)
	})

	// Combine everything into a stream of update messages.
	updates := rpp.MergeWith(
		rpp.Just("Waiting for updates...\n"),
		podLines,
		serviceLines,
		endpointsLines,
	)

	err = rpp.BlockingSubscribe(updates, func(desc string) {
		fmt.Println(desc)
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("error: %s", err)
	}
}

func describe[T k8sRuntime.Object](ev k8s.Event[T], d *differ[T]) string {
	var desc string
	ev.Dispatch(
		func(k8s.Store[T]) { desc = "" },
		func(key k8s.Key, obj T) {
			desc = fmt.Sprintf("%s updated:\n%s\n", key, d.diff(key, obj))
		},
		func(key k8s.Key) {
			desc = fmt.Sprintf("%s deleted", key)
		},
	)
	return desc
}

type differ[T any] struct {
	previous map[string]T
}

func newDiffer[T any]() *differ[T] {
	return &differ[T]{make(map[string]T)}
}

func (d *differ[T]) diff(key k8s.Key, obj T) string {
	changeDesc := ""
	k := key.String()
	if prev, ok := d.previous[k]; ok {
		changes := pretty.Diff(prev, obj)
		changeDesc = strings.Join(changes, "\n")
	} else {
		changeDesc = fmt.Sprintf("%#v", obj)
	}
	d.previous[k] = obj
	return changeDesc
}

func newK8sRESTClient(url, kubeconfig string) (rest.Interface, error) {
	config, err := clientcmd.BuildConfigFromFlags(url, kubeconfig)
	if err != nil {
		return nil, err
	}
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, err
	}
	return clientset.CoreV1().RESTClient(), nil
}
