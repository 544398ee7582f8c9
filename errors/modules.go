/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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
 *
 *
 */

package errors

const (
	MinPkgIOUtils   = 50
	MinPkgTransport = 100
	MinPkgWire      = 200
	MinPkgKeyring   = 300
	MinPkgBroadcast = 400
	MinPkgSuspicion = 500
	MinPkgAwareness = 600
	MinPkgState     = 700
	MinPkgSwim      = 800
	MinPkgClock     = 900
	MinPkgMember    = 1000
	MinPkgEvent     = 1100
	MinPkgSnapshot  = 1200
	MinPkgControl   = 1300
	MinPkgAgent     = 1400
	MinPkgConfig    = 1500
	MinPkgMetrics   = 1600
	MinPkgLogger    = 1700

	MinAvailable = 2000
)
