// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package lockcore

// RaceEnabled is true when the race detector is active. The detector
// cannot observe cross-variable acquire/release ordering, so goroutine-
// stress use of this package can report false positives under it.
const RaceEnabled = true
