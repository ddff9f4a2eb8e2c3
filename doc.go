// Copyright (c) 2020, The SpikingFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package spikingflow is the overall repository for the SpikingFlow spiking
neural network (SNN) simulation framework, implemented in the Go language
(golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-packages:

* clockdriven: the clock-driven simulation mode, which advances network
state in fixed time steps.  Its sub-packages are neuron (IF / LIF / PLIF /
RIF neuron layers), surrogate (spike firing functions with surrogate
gradients), layer (stateful spiking layers such as synapse filters,
dropout and normalization), and rnn (spiking recurrent cells).

* eventdriven: the event-driven simulation mode, which advances state only
at discrete spike events, including the Tempotron neuron and its learning
rule.

* encoding: encoders that turn static stimuli (intensities, images) into
spike trains: Poisson, latency, and gabor-filtered rate encoding.

* datasets: neuromorphic event datasets (DVS128 Gesture, ASL-DVS),
including AEDAT and MAT event-file readers and events-to-frames
integration.

* cmd/spikingflow: command-line front end for dataset preparation and
small simulation demos.
*/
package spikingflow
