package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/rendezvous/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity 2", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(2))

		Convey("Then it starts empty and open", func() {
			So(q.Len(), ShouldEqual, 0)
			So(q.Capacity(), ShouldEqual, 2)
			So(q.IsClosed(), ShouldBeFalse)
		})

		Convey("When enqueuing beyond capacity", func() {
			So(q.Enqueue(ctx, model.ResolveJob{Seq: 1, PartnerID: "a"}), ShouldBeNil)
			So(q.Enqueue(ctx, model.ResolveJob{Seq: 2, PartnerID: "b"}), ShouldBeNil)
			err := q.Enqueue(ctx, model.ResolveJob{Seq: 3, PartnerID: "c"})

			Convey("Then the extra job is rejected", func() {
				So(errors.Is(err, ErrFull), ShouldBeTrue)
				So(q.Len(), ShouldEqual, 2)
			})

			Convey("And dequeue yields jobs in order", func() {
				dctx, cancel := context.WithCancel(ctx)
				defer cancel()
				jobs := q.Dequeue(dctx)
				first := <-jobs
				second := <-jobs
				So(first.Seq, ShouldEqual, 1)
				So(second.Seq, ShouldEqual, 2)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then enqueue fails with the context error", func() {
				So(errors.Is(q.Enqueue(cctx, model.ResolveJob{Seq: 1}), context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When closed", func() {
			So(q.Enqueue(ctx, model.ResolveJob{Seq: 1}), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue is refused", func() {
				So(errors.Is(q.Enqueue(ctx, model.ResolveJob{Seq: 2}), ErrClosed), ShouldBeTrue)
				So(q.IsClosed(), ShouldBeTrue)
			})

			Convey("Then dequeue drains the remaining job and ends", func() {
				var got []uint64
				for j := range q.Dequeue(ctx) {
					got = append(got, j.Seq)
				}
				So(got, ShouldResemble, []uint64{1})
			})
		})

		Convey("When the dequeue context is cancelled on an idle queue", func() {
			dctx, cancel := context.WithCancel(ctx)
			jobs := q.Dequeue(dctx)
			cancel()

			Convey("Then the channel closes", func() {
				select {
				case _, ok := <-jobs:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					So("dequeue channel still open", ShouldBeEmpty)
				}
			})
		})
	})
}

func TestInMemoryQueueConcurrent(t *testing.T) {
	Convey("Given concurrent producers", t, func() {
		ctx := context.Background()
		q := NewInMemoryQueue(WithCapacity(1000))

		var wg sync.WaitGroup
		for p := 0; p < 10; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_ = q.Enqueue(ctx, model.ResolveJob{Seq: uint64(p*50 + i)})
				}
			}(p)
		}
		wg.Wait()

		Convey("Then every job is queued", func() {
			So(q.Len(), ShouldEqual, 500)
		})
	})
}
