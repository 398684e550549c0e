package art

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTreeBasics(t *testing.T) {
	Convey("Given an empty Tree", t, func() {
		tr := NewTree[int]()

		So(tr.Empty(), ShouldBeTrue)
		So(tr.Count(), ShouldEqual, 0)

		Convey("Insert then Get round-trips the value", func() {
			ok, err := tr.Insert([]byte("a"), 1)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			v, found := tr.Get([]byte("a"))
			So(found, ShouldBeTrue)
			So(v, ShouldEqual, 1)
			So(tr.Empty(), ShouldBeFalse)
			So(tr.Count(), ShouldEqual, 1)
		})

		Convey("Inserting the same key twice reports false the second time", func() {
			ok, err := tr.Insert([]byte("a"), 1)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			ok, err = tr.Insert([]byte("a"), 2)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)

			v, _ := tr.Get([]byte("a"))
			So(v, ShouldEqual, 1)
		})

		Convey("Remove then Get restores absence", func() {
			_, _ = tr.Insert([]byte("a"), 1)
			So(tr.Remove([]byte("a")), ShouldBeTrue)

			_, found := tr.Get([]byte("a"))
			So(found, ShouldBeFalse)
		})

		Convey("Clear drops every key", func() {
			_, _ = tr.Insert([]byte("a"), 1)
			_, _ = tr.Insert([]byte("b"), 2)

			tr.Clear()

			So(tr.Empty(), ShouldBeTrue)
			So(tr.Count(), ShouldEqual, 0)
		})
	})
}

func TestTreeWithStats(t *testing.T) {
	Convey("Given a Tree constructed with WithStats", t, func() {
		tr := NewTree[int](WithStats())

		for k := byte(0); k < 5; k++ {
			ok, err := tr.Insert([]byte{k}, int(k))
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		}

		Convey("Stats reports the leaves constructed and the Node4 promotion", func() {
			snap := tr.Stats()
			So(snap.Leaves, ShouldEqual, 5)
			So(snap.PromoteToNode16, ShouldEqual, 1)
		})
	})

	Convey("Given a Tree constructed without WithStats", t, func() {
		tr := NewTree[int]()
		ok, err := tr.Insert([]byte("a"), 1)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)

		Convey("Stats stays the zero snapshot", func() {
			snap := tr.Stats()
			So(snap.Leaves, ShouldEqual, 0)
		})
	})
}

func TestTreeScanAndIterator(t *testing.T) {
	Convey("Given a Tree holding several keys", t, func() {
		tr := NewTree[int]()
		keys := [][]byte{{5}, {1}, {3}, {2}, {4}}
		for i, k := range keys {
			_, _ = tr.Insert(k, i)
		}

		Convey("Scan visits keys in ascending order", func() {
			var got []byte
			tr.Scan(true, func(key []byte, _ int) bool {
				got = append(got, key[0])
				return false
			})

			So(got, ShouldResemble, []byte{1, 2, 3, 4, 5})
		})

		Convey("NewIterator walks the same order as Scan", func() {
			it := tr.NewIterator()
			So(it.First(), ShouldBeTrue)

			var got []byte
			for {
				got = append(got, it.Key()[0])
				if !it.Next() {
					break
				}
			}

			So(got, ShouldResemble, []byte{1, 2, 3, 4, 5})
		})

		Convey("Seek reports exact match status", func() {
			it := tr.NewIterator()

			exact := it.Seek([]byte{3}, true)
			So(exact, ShouldBeTrue)
			So(it.Value(), ShouldEqual, 2)

			exact = it.Seek([]byte{6}, true)
			So(exact, ShouldBeFalse)
			So(it.Valid(), ShouldBeFalse)
		})
	})
}

func TestValueTooLarge(t *testing.T) {
	Convey("valueTooLarge only ever trips for []byte values", t, func() {
		So(valueTooLarge(42), ShouldBeFalse)
		So(valueTooLarge("a string"), ShouldBeFalse)
		So(valueTooLarge([]byte("short")), ShouldBeFalse)
		So(valueTooLarge([]byte{}), ShouldBeFalse)
	})

	Convey("the limit is 2^32-1 bytes", t, func() {
		So(uint64(math.MaxUint32), ShouldEqual, uint64(1)<<32-1)
	})
}

func TestConcurrentTreeBasics(t *testing.T) {
	Convey("Given an empty ConcurrentTree", t, func() {
		ct := NewConcurrentTree[int]()
		ct.RegisterThisThread()
		defer ct.UnregisterThisThread()

		So(ct.Empty(), ShouldBeTrue)

		Convey("Insert then Get round-trips the value", func() {
			ok, err := ct.Insert([]byte("a"), 1)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			v, found := ct.Get([]byte("a"))
			So(found, ShouldBeTrue)
			So(v, ShouldEqual, 1)
		})

		Convey("Remove reports true for a present key and false after", func() {
			_, _ = ct.Insert([]byte("a"), 1)
			So(ct.Remove([]byte("a")), ShouldBeTrue)
			So(ct.Remove([]byte("a")), ShouldBeFalse)
		})

		Convey("Clear succeeds while this goroutine is the only registered thread", func() {
			_, _ = ct.Insert([]byte("a"), 1)

			err := ct.Clear()
			So(err, ShouldBeNil)
			So(ct.Empty(), ShouldBeTrue)
		})

		Convey("Clear refuses while a second thread is registered", func() {
			other := make(chan struct{})
			registered := make(chan struct{})
			done := make(chan struct{})

			go func() {
				defer close(done)

				ct.RegisterThisThread()
				close(registered)
				<-other
				ct.UnregisterThisThread()
			}()
			<-registered

			err := ct.Clear()
			So(err, ShouldEqual, ErrNotQuiescent)

			close(other)
			<-done
		})
	})
}

func TestConcurrentTreeIteratorAndStats(t *testing.T) {
	Convey("Given a ConcurrentTree built with WithStats", t, func() {
		ct := NewConcurrentTree[int](WithStats())
		ct.RegisterThisThread()
		defer ct.UnregisterThisThread()

		keys := [][]byte{{3}, {1}, {2}}
		for i, k := range keys {
			ok, err := ct.Insert(k, i)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		}

		Convey("Stats reports the leaves constructed", func() {
			snap := ct.Stats()
			So(snap.Leaves, ShouldEqual, 3)
		})

		Convey("QSBRStats reports this goroutine's registration", func() {
			qs := ct.QSBRStats()
			So(qs.Registers(), ShouldBeGreaterThanOrEqualTo, uint64(1))
		})

		Convey("NewIterator walks the keys in order", func() {
			it := ct.NewIterator()
			So(it.First(), ShouldBeTrue)

			var got []byte
			for {
				got = append(got, it.Key()[0])
				if !it.Next() {
					break
				}
			}

			So(got, ShouldResemble, []byte{1, 2, 3})
		})
	})
}
