// Package doubaospeech is a client for Volcengine's Doubao BigModel speech
// APIs: streaming ASR (SAUC, /api/v3/sauc/*) and streaming TTS
// (/api/v3/tts/*). It covers only the V2/V3 BigModel surface this module's
// transformers actually drive; the V1 classic endpoints, voice cloning,
// meeting/podcast/subtitle/translation task APIs, the realtime dialogue
// websocket, and the console management API are not implemented here.
//
// Construct a client with an app ID and a V2 API key pair:
//
//	client := doubaospeech.NewClient(appID, doubaospeech.WithV2APIKey(accessKey, appKey))
//
// Streaming recognition:
//
//	session, err := client.ASRV2.OpenStreamSession(ctx, &doubaospeech.ASRV2Config{
//	    SampleRate: 16000,
//	    Language:   "zh-CN",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//	session.SendAudio(ctx, chunk, false)
//	for result, err := range session.Recv() {
//	    if err != nil {
//	        break
//	    }
//	    fmt.Println(result.Text)
//	}
//
// Streaming synthesis:
//
//	for chunk, err := range client.TTSV2.Stream(ctx, &doubaospeech.TTSV2Request{
//	    Text:       text,
//	    Speaker:    "zh_female_cancan",
//	    ResourceID: doubaospeech.ResourceTTSV2,
//	}) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    // chunk.Audio holds PCM/opus bytes depending on the request's encoding
//	}
package doubaospeech
