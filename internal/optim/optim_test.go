// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim_test

import (
	"testing"

	"github.com/born-ml/bifpn/internal/autodiff"
	"github.com/born-ml/bifpn/internal/backend/cpu"
	"github.com/born-ml/bifpn/internal/nn"
	"github.com/born-ml/bifpn/internal/optim"
	"github.com/born-ml/bifpn/internal/tensor"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

func gradFor(param *nn.Parameter[Backend], value float32) map[*tensor.RawTensor]*tensor.RawTensor {
	grad := tensor.MustNewRaw(param.Tensor().Shape(), tensor.CPU)
	for i := range grad.Data() {
		grad.Data()[i] = value
	}
	return map[*tensor.RawTensor]*tensor.RawTensor{param.Tensor().Raw(): grad}
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{2.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewSGD([]*nn.Parameter[Backend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.0},
		backend,
	)

	optimizer.Step(gradFor(param, 1.0))

	// x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	if actual := param.Tensor().Data()[0]; !floatEqual(actual, 1.9, 1e-6) {
		t.Errorf("SGD update: got %f, want %f", actual, 1.9)
	}
}

// TestSGD_WithMomentum tests the velocity accumulation across steps.
func TestSGD_WithMomentum(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewSGD([]*nn.Parameter[Backend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)

	// Step 1: v = 1.0, x = 1.0 - 0.1*1.0 = 0.9
	optimizer.Step(gradFor(param, 1.0))
	if actual := param.Tensor().Data()[0]; !floatEqual(actual, 0.9, 1e-6) {
		t.Errorf("step 1: got %f, want %f", actual, 0.9)
	}

	// Step 2: v = 0.9*1.0 + 1.0 = 1.9, x = 0.9 - 0.1*1.9 = 0.71
	optimizer.Step(gradFor(param, 1.0))
	if actual := param.Tensor().Data()[0]; !floatEqual(actual, 0.71, 1e-6) {
		t.Errorf("step 2: got %f, want %f", actual, 0.71)
	}
}

// TestSGD_SkipsParamsWithoutGradient ensures missing gradients leave the
// parameter untouched.
func TestSGD_SkipsParamsWithoutGradient(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{5.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewSGD([]*nn.Parameter[Backend]{param},
		optim.SGDConfig{LR: 0.1},
		backend,
	)

	optimizer.Step(map[*tensor.RawTensor]*tensor.RawTensor{})

	if actual := param.Tensor().Data()[0]; actual != 5.0 {
		t.Errorf("parameter without gradient changed: got %f, want 5.0", actual)
	}
}

// TestSGD_DefaultLR verifies the 0.01 default.
func TestSGD_DefaultLR(t *testing.T) {
	backend := autodiff.New(cpu.New())
	optimizer := optim.NewSGD([]*nn.Parameter[Backend]{}, optim.SGDConfig{}, backend)

	if lr := optimizer.GetLR(); lr != 0.01 {
		t.Errorf("default LR: got %f, want 0.01", lr)
	}
}

// TestSGD_StateDict round-trips velocity buffers.
func TestSGD_StateDict(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{1.0, 2.0}, tensor.Shape{2}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewSGD([]*nn.Parameter[Backend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)
	optimizer.Step(gradFor(param, 2.0))

	state := optimizer.StateDict()
	if len(state) != 1 {
		t.Fatalf("state dict size: got %d, want 1", len(state))
	}

	// Fresh optimizer over the same parameter resumes the velocity.
	restored := optim.NewSGD([]*nn.Parameter[Backend]{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
		backend,
	)
	if err := restored.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	got := restored.StateDict()["velocity.0"]
	if got == nil || !floatEqual(got.Data()[0], 2.0, 1e-6) {
		t.Errorf("restored velocity: got %v, want 2.0", got)
	}
}

// TestSGD_EndToEnd runs a real backward pass through the tape and checks
// the loss decreases: minimize f(x) = x^2 from x=3.
func TestSGD_EndToEnd(t *testing.T) {
	backend := autodiff.New(cpu.New())

	x, _ := tensor.FromSlice([]float32{3.0}, tensor.Shape{1}, backend)
	param := nn.NewParameter("x", x)

	optimizer := optim.NewSGD([]*nn.Parameter[Backend]{param},
		optim.SGDConfig{LR: 0.1},
		backend,
	)

	prev := float32(9.0)
	for i := 0; i < 5; i++ {
		backend.Tape().StartRecording()
		loss := param.Tensor().Mul(param.Tensor())

		seed := tensor.MustNewRaw(tensor.Shape{1}, tensor.CPU)
		seed.Data()[0] = 1
		grads := backend.Tape().Backward(seed, backend)

		backend.Tape().StopRecording()
		backend.Tape().Clear()
		optimizer.Step(grads)

		if loss.Item() > prev {
			t.Fatalf("iteration %d: loss %f did not decrease from %f", i, loss.Item(), prev)
		}
		prev = loss.Item()
	}

	if v := param.Tensor().Data()[0]; v >= 3.0 || v <= 0 {
		t.Errorf("x after descent: got %f, want in (0, 3)", v)
	}
}
