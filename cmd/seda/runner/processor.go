/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/apache/camel-sub208/pkg/seda/types"
)

// demoProcessor upper-cases string bodies after a simulated delay.
type demoProcessor struct {
	latency time.Duration
	clock   clock.Clock
}

func newDemoProcessor(latency time.Duration, clk clock.Clock) *demoProcessor {
	return &demoProcessor{latency: latency, clock: clk}
}

func (d *demoProcessor) Process(ctx context.Context, ex *types.Exchange) error {
	if d.latency > 0 {
		select {
		case <-d.clock.After(d.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s, ok := ex.Body().(string)
	if !ok {
		return fmt.Errorf("unsupported body type %T", ex.Body())
	}
	ex.SetBody(strings.ToUpper(s))
	return nil
}
