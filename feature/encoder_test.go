package feature

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/attrition/core"
)

const colX core.Column = "x"

func TestOneHotEncoder(t *testing.T) {
	train := newFrame(t, 4).str(colX, "B", "A", "C", "A").build()

	tests := []struct {
		name    string
		unseen  UnseenPolicy
		batch   []string
		want    [][]float64
		wantErr bool
	}{
		{
			name:   "drops first category",
			unseen: UnseenIgnore,
			batch:  []string{"A", "B", "C"},
			want:   [][]float64{{0, 0}, {1, 0}, {0, 1}},
		},
		{
			name:   "unseen ignored",
			unseen: UnseenIgnore,
			batch:  []string{"D"},
			want:   [][]float64{{0, 0}},
		},
		{
			name:    "unseen rejected",
			unseen:  UnseenError,
			batch:   []string{"C", "D"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewOneHotEncoder([]core.Column{colX}, tt.unseen)
			require.NoError(t, e.Fit(train))
			assert.Equal(t, []string{"x_B", "x_C"}, e.FeatureNames())

			out, err := e.Transform(newFrame(t, len(tt.batch)).str(colX, tt.batch...).build())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsUnseenCategory(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Rows)
		})
	}
}

func TestOneHotEncoder_NotFitted(t *testing.T) {
	e := NewOneHotEncoder([]core.Column{colX}, "")
	assert.Equal(t, UnseenIgnore, e.Unseen)
	_, err := e.Transform(newFrame(t, 1).str(colX, "A").build())
	assert.True(t, core.IsNotFitted(err))
}

func TestLabelEncoder(t *testing.T) {
	train := newFrame(t, 3).str(colX, "Manager", "Consultant", "Manager").build()

	e := NewLabelEncoder([]core.Column{colX}, "")
	assert.Equal(t, UnseenError, e.Unseen)
	require.NoError(t, e.Fit(train))
	assert.Equal(t, []string{"Consultant", "Manager"}, e.Classes[colX])

	out, err := e.Transform(newFrame(t, 2).str(colX, "Manager", "Consultant").build())
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {0}}, out.Rows)

	// 编码不随批次重新编号
	out, err = e.Transform(newFrame(t, 1).str(colX, "Manager").build())
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}}, out.Rows)

	_, err = e.Transform(newFrame(t, 1).str(colX, "Stagiaire").build())
	require.Error(t, err)
	assert.True(t, core.IsUnseenCategory(err))

	e.Unseen = UnseenIgnore
	code, err := e.EncodeValue(colX, "Stagiaire")
	require.NoError(t, err)
	assert.Equal(t, UnseenLabel, code)
}

func TestOrdinalEncoder(t *testing.T) {
	e := NewOrdinalEncoder(core.ColTravelFrequency, DefaultTravelFrequency)
	got := e.EncodeColumn([]string{"Aucun", "Frequent", "Occasionnel", "Parfois"})
	assert.Equal(t, []float64{0, 2, 1}, got[:3])
	assert.True(t, math.IsNaN(got[3]))
}

func TestFrequencyMapper(t *testing.T) {
	m := NewFrequencyMapper(nil)
	f := newFrame(t, 2).str(core.ColTravelFrequency, "Occasionnel", "Frequent").build()
	require.NoError(t, m.Fit(f))
	out, err := m.Transform(f)
	require.NoError(t, err)

	kind, _ := out.Kind(core.ColTravelFrequency)
	assert.Equal(t, core.KindNumeric, kind)
	v, _ := out.Float(core.ColTravelFrequency)
	assert.Equal(t, []float64{1, 2}, v)

	kind, _ = f.Kind(core.ColTravelFrequency)
	assert.Equal(t, core.KindCategorical, kind, "input frame must stay untouched")
}

func TestDropColumns(t *testing.T) {
	f := newFrame(t, 1).
		num(core.ColEmployeeID, 1).
		num(core.ColAge, 30).
		build()
	out, err := NewDropColumns([]core.Column{core.ColEmployeeID, core.ColJobLevel}).Transform(f)
	require.NoError(t, err)
	assert.Equal(t, []core.Column{core.ColAge}, out.Columns())
	assert.True(t, f.Has(core.ColEmployeeID))
}

func TestColumnTransformer(t *testing.T) {
	train := newFrame(t, 4).
		num(core.ColAge, 20, 30, 40, 50).
		str(core.ColGender, "F", "M", "F", "M").
		str(core.ColJobTitle, "Consultant", "Manager", "Consultant", "Manager").
		num(core.ColWorkingHours, 80, 80, 80, 80).
		build()

	ct := NewColumnTransformer(
		[]core.Column{core.ColAge},
		[]core.Column{core.ColGender},
		[]core.Column{core.ColJobTitle},
		UnseenIgnore, UnseenError,
	)
	_, err := ct.Transform(train)
	require.True(t, core.IsNotFitted(err))

	require.NoError(t, ct.Fit(train))
	assert.Equal(t, []string{"age", "genre_M", "poste"}, ct.FeatureNames())

	out, err := ct.Transform(train)
	require.NoError(t, err)
	require.Equal(t, 4, out.Len())
	require.Equal(t, 3, out.Width())

	std := math.Sqrt(125)
	assert.InDelta(t, (20-35)/std, out.Rows[0][0], 1e-12)
	assert.Equal(t, []float64{1, 1}, []float64{out.Rows[1][1], out.Rows[1][2]})

	t.Run("state survives json", func(t *testing.T) {
		data, err := json.Marshal(ct)
		require.NoError(t, err)
		var loaded ColumnTransformer
		require.NoError(t, json.Unmarshal(data, &loaded))
		require.True(t, loaded.Fitted())

		again, err := loaded.Transform(train)
		require.NoError(t, err)
		assert.Equal(t, out, again)
	})
}
