package repository

import "context"

// 商品画像・レビュー写真の置き場所
type ObjectStorage interface {
	//アップロードして公開URLを返す
	Upload(ctx context.Context, folder string, filename string, contentType string, data []byte) (string, error)
	//Uploadが返したURLを削除する
	Delete(ctx context.Context, url string) error
}
