/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package devserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts handled requests by route template and status.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netbackup_devserver_requests_total",
			Help: "Total HTTP requests handled by the development API",
		},
		[]string{"method", "route", "status"},
	)

	// requestDuration tracks handler latency in seconds.
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netbackup_devserver_request_duration_seconds",
			Help:    "Development API request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"route"},
	)

	// loginsTotal counts login attempts by outcome (accepted/rejected).
	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netbackup_devserver_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
)
