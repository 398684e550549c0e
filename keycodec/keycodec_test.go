package keycodec

import (
	"bytes"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestUint64RoundTripsAndOrders(t *testing.T) {
	Convey("Uint64 round-trips through DecodeUint64", t, func() {
		for _, v := range []uint64{0, 1, 1 << 32, math.MaxUint64} {
			So(DecodeUint64(Uint64(v)), ShouldEqual, v)
		}
	})

	Convey("Byte order of Uint64 matches numeric order", t, func() {
		So(bytes.Compare(Uint64(0), Uint64(1)), ShouldBeLessThan, 0)
		So(bytes.Compare(Uint64(1<<32), Uint64(math.MaxUint64)), ShouldBeLessThan, 0)
	})
}

func TestInt64RoundTripsAndOrdersAcrossSign(t *testing.T) {
	Convey("Int64 round-trips through DecodeInt64", t, func() {
		for _, v := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
			So(DecodeInt64(Int64(v)), ShouldEqual, v)
		}
	})

	Convey("Byte order of Int64 matches signed numeric order across the sign boundary", t, func() {
		So(bytes.Compare(Int64(-1), Int64(0)), ShouldBeLessThan, 0)
		So(bytes.Compare(Int64(math.MinInt64), Int64(-1)), ShouldBeLessThan, 0)
		So(bytes.Compare(Int64(0), Int64(math.MaxInt64)), ShouldBeLessThan, 0)
		So(bytes.Compare(Int64(math.MinInt64), Int64(math.MaxInt64)), ShouldBeLessThan, 0)
	})
}

func TestUint32AndInt32(t *testing.T) {
	Convey("Uint32 and Int32 round-trip and preserve order the same way as the 64-bit variants", t, func() {
		So(DecodeUint32(Uint32(math.MaxUint32)), ShouldEqual, uint32(math.MaxUint32))
		So(DecodeInt32(Int32(math.MinInt32)), ShouldEqual, int32(math.MinInt32))

		So(bytes.Compare(Int32(-1), Int32(1)), ShouldBeLessThan, 0)
		So(bytes.Compare(Uint32(0), Uint32(1)), ShouldBeLessThan, 0)
	})
}

func TestBytesIsPassthrough(t *testing.T) {
	Convey("Bytes returns the key unchanged", t, func() {
		k := []byte{0x01, 0x02, 0x03}
		So(Bytes(k), ShouldResemble, k)
	})
}
