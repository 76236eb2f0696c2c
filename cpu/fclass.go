/*
   FCLASS bit-mask classification for the F extension.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package cpu

// FCLASS bit positions, indexed by the category a float falls into.
const (
	fclassNegInf      = 0x001
	fclassNegNormal   = 0x002
	fclassNegSubnorm  = 0x004
	fclassNegZero     = 0x008
	fclassPosZero     = 0x010
	fclassPosSubnorm  = 0x020
	fclassPosNormal   = 0x040
	fclassPosInf      = 0x080
	fclassSigNaN      = 0x100
	fclassQuietNaN    = 0x200
)

// classify returns the FCLASS mask for the raw IEEE-754 single-precision
// bit pattern bits. Exactly one bit of the result is ever set.
func classify(bits uint32) uint32 {
	sign := bits>>31 != 0
	exp := (bits >> 23) & 0xff
	frac := bits & 0x7fffff

	if exp == 0xff {
		if frac == 0 {
			if sign {
				return fclassNegInf
			}
			return fclassPosInf
		}
		if frac&0x400000 == 0 {
			return fclassSigNaN
		}
		return fclassQuietNaN
	}
	if exp == 0 {
		if frac == 0 {
			if sign {
				return fclassNegZero
			}
			return fclassPosZero
		}
		if sign {
			return fclassNegSubnorm
		}
		return fclassPosSubnorm
	}
	if sign {
		return fclassNegNormal
	}
	return fclassPosNormal
}
