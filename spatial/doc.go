// SPDX-License-Identifier: EPL-2.0

// Package spatial turns source and listener positions into a scalar volume
// attenuation.
//
// Only distance is modelled. There is no panning, doppler or occlusion.
//
//	model, _ := spatial.NewPow2(10, 110)
//	gain := model.Attenuation(spatial.Vec3{60, 0, 0}, spatial.Vec3{})
//	// gain == 0.25
package spatial
