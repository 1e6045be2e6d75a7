// Package domain models the synthetic Lyon flood scenarios served by the lab.
//
// # Dataset
//
// Each seed deterministically produces 400 synthetic buildings scattered
// around the Lyon city centre (45.7640 N, 4.8357 E). The pseudo-random
// stream is a 32-bit counter generator (see [Stream]) with no wall-clock or
// external entropy, so a seed yields the same buildings on every platform.
//
// Draw order per building:
//
//	u1 → latitude jitter   (±0.04°)
//	u2 → longitude jitter  (±0.06°)
//	u3 → replacement cost  100000 + floor(u3·900000) €
//	     criticality       fractional residual of u3·900000 below 0.06
//
// # Depth model
//
// The river is a fixed four-point polyline running north to south through
// the city. Water depth at a building is the attenuated water level minus a
// linear decay of 55 m per degree of planar distance to that polyline,
// floored at zero:
//
//	level = levelCm/100 · (1 − attenuation)
//	depth = max(0, level − 55·dist)
//
// Mitigation measures attenuate the level independently:
//
//	green roofs        0.08
//	permeable pavement 0.10
//	barriers           0.12   (sum capped at 0.35)
//
// # Damage model
//
// A building is affected when depth exceeds 5 cm. Its loss is the
// replacement cost times the depth-damage ratio 1 − e^(−0.8·depth), capped
// at 0.95.
//
// # Shareable state
//
// Scenario state round-trips through the URL query parameters level, gr,
// pp, tb and seed. Booleans use the literal values "1" and "0".
package domain
