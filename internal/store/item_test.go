package store_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/kubev2v/stock-importer/internal/config"
	st "github.com/kubev2v/stock-importer/internal/store"
	"github.com/kubev2v/stock-importer/internal/store/model"
)

const insertItemStm = "INSERT INTO items (external_id, name) VALUES ('%s', '%s');"

var _ = Describe("item store", Ordered, func() {
	var (
		s      st.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := st.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = st.NewStore(db)
		gormdb = db

		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM items;")
	})

	Context("fetch external ids", func() {
		It("returns empty set for an empty table", func() {
			ids, err := s.Item().FetchAllExternalIDs(context.TODO())
			Expect(err).To(BeNil())
			Expect(ids).To(HaveLen(0))
		})

		It("returns every stored id", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertItemStm, "sku-1", "widget"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertItemStm, "sku-2", "gadget"))
			Expect(tx.Error).To(BeNil())

			ids, err := s.Item().FetchAllExternalIDs(context.TODO())
			Expect(err).To(BeNil())
			Expect(ids).To(ConsistOf("sku-1", "sku-2"))
		})
	})

	Context("persist", func() {
		It("stores a batch of items", func() {
			quantity := int64(42)
			expiry := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)

			err := s.Item().Persist(context.TODO(), []model.Item{
				{ExternalID: "sku-1", Name: "widget", Quantity: &quantity, ExpiryDate: &expiry},
				{ExternalID: "sku-2", Name: "gadget"},
			})
			Expect(err).To(BeNil())

			count, err := s.Item().Count(context.TODO())
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(2)))
		})

		It("does nothing for an empty batch", func() {
			Expect(s.Item().Persist(context.TODO(), nil)).To(BeNil())
		})

		It("fails the whole batch on a duplicate external id", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertItemStm, "sku-1", "widget"))
			Expect(tx.Error).To(BeNil())

			err := s.Item().Persist(context.TODO(), []model.Item{
				{ExternalID: "sku-2", Name: "gadget"},
				{ExternalID: "sku-1", Name: "copycat"},
			})
			Expect(err).ToNot(BeNil())

			count, err := s.Item().Count(context.TODO())
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(1)))
		})
	})

	Context("transaction", func() {
		It("commits persisted items", func() {
			ctx, err := s.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			err = s.Item().Persist(ctx, []model.Item{{ExternalID: "sku-1", Name: "widget"}})
			Expect(err).To(BeNil())

			_, cerr := st.Commit(ctx)
			Expect(cerr).To(BeNil())

			count := 0
			err = gormdb.Raw("SELECT COUNT(*) FROM items;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("rolls back persisted items", func() {
			ctx, err := s.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			err = s.Item().Persist(ctx, []model.Item{{ExternalID: "sku-1", Name: "widget"}})
			Expect(err).To(BeNil())

			_, rerr := st.Rollback(ctx)
			Expect(rerr).To(BeNil())

			count := 0
			err = gormdb.Raw("SELECT COUNT(*) FROM items;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(0))
		})
	})
})
