package node

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNode256(t *testing.T) {
	Convey("Given an empty Node256", t, func() {
		n := NewNode256[int]()

		So(n.Kind(), ShouldEqual, KindNode256)
		So(n.Full(), ShouldBeFalse)
		So(n.NumChildren(), ShouldEqual, 0)

		Convey("FindChild reports absent bytes", func() {
			_, _, ok := n.FindChild(0x42)
			So(ok, ShouldBeFalse)
		})

		Convey("AddChild is a direct index, any byte addressable in one call", func() {
			n.AddChild(0x00, leaf(0x00))
			n.AddChild(0xFF, leaf(0xFF))

			So(n.NumChildren(), ShouldEqual, 2)

			b, _, _, ok := n.FirstChild()
			So(ok, ShouldBeTrue)
			So(b, ShouldEqual, byte(0x00))

			b, _, _, ok = n.LastChild()
			So(ok, ShouldBeTrue)
			So(b, ShouldEqual, byte(0xFF))
		})

		Convey("NextChildAfter at key byte 0xFF reports no next child instead of wrapping to the first", func() {
			n.AddChild(0x01, leaf(0x01))
			n.AddChild(0xFF, leaf(0xFF))

			_, _, _, ok := n.NextChildAfter(0xFF)
			So(ok, ShouldBeFalse)
		})

		Convey("Promote panics: Node256 is the largest shape", func() {
			So(func() { n.Promote() }, ShouldPanic)
		})

		Convey("Shrink at Node256MinChildren is a no-op", func() {
			for i := 0; i < Node256MinChildren; i++ {
				n.AddChild(byte(i), leaf(byte(i)))
			}

			So(n.Shrink(), ShouldEqual, n)
		})

		Convey("Shrink below Node256MinChildren demotes to Node48 preserving every child", func() {
			for i := 0; i < Node256MinChildren-1; i++ {
				n.AddChild(byte(i), leaf(byte(i)))
			}

			shrunk := n.Shrink()
			So(shrunk.Kind(), ShouldEqual, KindNode48)
			So(shrunk.NumChildren(), ShouldEqual, Node256MinChildren-1)

			for i := 0; i < Node256MinChildren-1; i++ {
				_, child, ok := shrunk.FindChild(byte(i))
				So(ok, ShouldBeTrue)
				So(child.(*Leaf[int]).Value, ShouldEqual, i)
			}
		})
	})
}
