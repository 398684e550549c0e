package node

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func leaf(k byte) *Leaf[int] { return NewLeaf([]byte{k}, int(k)) }

func TestNode4(t *testing.T) {
	Convey("Given an empty Node4", t, func() {
		n := NewNode4[int]()

		So(n.Kind(), ShouldEqual, KindNode4)
		So(n.Full(), ShouldBeFalse)
		So(n.NumChildren(), ShouldEqual, 0)
		So(n.Minimum(), ShouldBeNil)
		So(n.Maximum(), ShouldBeNil)

		Convey("Adding children keeps key order regardless of insertion order", func() {
			n.AddChild('c', leaf('c'))
			n.AddChild('a', leaf('a'))
			n.AddChild('b', leaf('b'))

			So(n.NumChildren(), ShouldEqual, 3)

			b, _, _, ok := n.FirstChild()
			So(ok, ShouldBeTrue)
			So(b, ShouldEqual, byte('a'))

			b, _, _, ok = n.LastChild()
			So(ok, ShouldBeTrue)
			So(b, ShouldEqual, byte('c'))
		})

		Convey("Full at exactly Node4Capacity children", func() {
			for i := 0; i < Node4Capacity; i++ {
				n.AddChild(byte('a'+i), leaf(byte('a'+i)))
			}

			So(n.NumChildren(), ShouldEqual, Node4Capacity)
			So(n.Full(), ShouldBeTrue)
		})

		Convey("FindChild reports absent bytes", func() {
			n.AddChild('a', leaf('a'))

			_, _, ok := n.FindChild('z')
			So(ok, ShouldBeFalse)

			slot, child, ok := n.FindChild('a')
			So(ok, ShouldBeTrue)
			So(slot, ShouldEqual, 0)
			So(child.(*Leaf[int]).Value, ShouldEqual, int('a'))
		})

		Convey("GTEKeyByte and LTEKeyByte find neighbors around a gap", func() {
			n.AddChild('a', leaf('a'))
			n.AddChild('c', leaf('c'))

			kb, _, ok := n.GTEKeyByte('b')
			So(ok, ShouldBeTrue)
			So(kb, ShouldEqual, byte('c'))

			kb, _, ok = n.LTEKeyByte('b')
			So(ok, ShouldBeTrue)
			So(kb, ShouldEqual, byte('a'))
		})

		Convey("Promote to Node16 preserves every child in order", func() {
			for i := 0; i < Node4Capacity; i++ {
				n.AddChild(byte('a'+i), leaf(byte('a'+i)))
			}

			promoted := n.Promote()
			So(promoted.Kind(), ShouldEqual, KindNode16)
			So(promoted.NumChildren(), ShouldEqual, Node4Capacity)

			for i := 0; i < Node4Capacity; i++ {
				_, child, ok := promoted.FindChild(byte('a' + i))
				So(ok, ShouldBeTrue)
				So(child.(*Leaf[int]).Value, ShouldEqual, int('a'+i))
			}
		})

		Convey("Shrink with two children is a no-op", func() {
			n.AddChild('a', leaf('a'))
			n.AddChild('b', leaf('b'))

			So(n.Shrink(), ShouldEqual, n)
		})

		Convey("Shrink with one leaf child collapses onto that leaf", func() {
			child := leaf('a')
			n.AddChild('a', child)

			So(n.Shrink(), ShouldEqual, child)
		})
	})
}

func TestNode4EdgeCases(t *testing.T) {
	Convey("Given a Node4", t, func() {
		n := NewNode4[int]()

		Convey("Byte 0x00 and 0xFF both traverse correctly", func() {
			n.AddChild(0x00, leaf(0x00))
			n.AddChild(0xFF, leaf(0xFF))

			b, _, _, ok := n.FirstChild()
			So(ok, ShouldBeTrue)
			So(b, ShouldEqual, byte(0x00))

			b, _, _, ok = n.LastChild()
			So(ok, ShouldBeTrue)
			So(b, ShouldEqual, byte(0xFF))
		})

		Convey("RemoveChild compacts the remaining slots", func() {
			n.AddChild('a', leaf('a'))
			n.AddChild('b', leaf('b'))
			n.AddChild('c', leaf('c'))

			slot, _, _ := n.FindChild('b')
			n.RemoveChild(slot)

			So(n.NumChildren(), ShouldEqual, 2)
			_, _, ok := n.FindChild('b')
			So(ok, ShouldBeFalse)

			b, _, _, ok := n.LastChild()
			So(ok, ShouldBeTrue)
			So(b, ShouldEqual, byte('c'))
		})
	})
}
