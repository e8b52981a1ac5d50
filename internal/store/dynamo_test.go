package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/prefs/internal/plist"
)

// fakeDynamo is an in-memory table keyed by "pk". Scan returns pageSize items
// per page so pagination is exercised.
type fakeDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	failPut  error
	scans    int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}, pageSize: 2}
}

func pkOf(key map[string]types.AttributeValue) string {
	if s, ok := key["pk"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sdk.GetItemOutput{Item: f.items[pkOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[pkOf(in.Item)] = in.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, pkOf(in.Key))
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := pkOf(in.ExclusiveStartKey)
		for start < len(keys) && keys[start] <= after {
			start++
		}
	}
	end := min(start+f.pageSize, len(keys))

	out := &sdk.ScanOutput{}
	for _, k := range keys[start:end] {
		out.Items = append(out.Items, map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: k}})
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: keys[end-1]}}
	}
	return out, nil
}

func TestNewDynamo_Validation(t *testing.T) {
	_, err := NewDynamo(nil, "t")
	assert.Error(t, err)

	_, err = NewDynamo(newFakeDynamo(), "")
	assert.Error(t, err)

	d, err := NewDynamo(newFakeDynamo(), "prefs")
	require.NoError(t, err)
	assert.Equal(t, "prefs", d.Table())
}

func TestDynamo_RoundTrip(t *testing.T) {
	fake := newFakeDynamo()
	d, err := NewDynamo(fake, "prefs")
	require.NoError(t, err)

	_, ok, err := d.Get("lang")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Set("lang", plist.String("sv")))
	require.NoError(t, d.Set("tags", plist.Array{plist.String("a"), plist.Int(2)}))
	require.NoError(t, d.Set("cleared", plist.Null{}))

	v, ok, err := d.Get("lang")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plist.String("sv"), v)

	v, ok, err = d.Get("tags")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, plist.Equal(plist.Array{plist.String("a"), plist.Int(2)}, v))

	v, ok, err = d.Get("cleared")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, plist.Null{}, v)

	item := fake.items["lang"]
	assert.Equal(t, &types.AttributeValueMemberS{Value: "string"}, item["kind"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: `{"type":"string","value":"sv"}`}, item["value"])

	require.NoError(t, d.Remove("lang"))
	require.NoError(t, d.Remove("lang"))
	_, ok, err = d.Get("lang")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDynamo_KeysPaginates(t *testing.T) {
	fake := newFakeDynamo()
	d, err := NewDynamo(fake, "prefs")
	require.NoError(t, err)

	for _, k := range []string{"e", "a", "d", "c", "b"} {
		require.NoError(t, d.Set(k, plist.Bool(true)))
	}

	keys, err := d.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, keys)
	assert.Equal(t, 3, fake.scans)
}

func TestDynamo_SetErrors(t *testing.T) {
	fake := newFakeDynamo()
	d, err := NewDynamo(fake, "prefs")
	require.NoError(t, err)

	assert.Error(t, d.Set("bad", plist.Dict{"x": plist.Null{}}))
	assert.Empty(t, fake.items)

	fake.failPut = errors.New("throttled")
	err = d.Set("k", plist.Int(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, fake.failPut)
}
